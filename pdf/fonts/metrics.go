package fonts

// Advance widths for character codes 32 through 126, from the Adobe AFM
// files of the standard fonts. Oblique faces share their upright widths.
var (
	helveticaWidths = [95]int16{
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278, // space ../
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, // 0..9
		278, 278, 584, 584, 584, 556, 1015, // : ; < = > ? @
		667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, // A..M
		722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, // N..Z
		278, 278, 278, 469, 556, 333, // [ \ ] ^ _ `
		556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, // a..m
		556, 556, 556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, // n..z
		334, 260, 334, 584, // { | } ~
	}

	helveticaBoldWidths = [95]int16{
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556,
		333, 333, 584, 584, 584, 611, 975,
		722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833,
		722, 778, 667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611,
		333, 278, 333, 584, 556, 333,
		556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889,
		611, 611, 611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500,
		389, 280, 389, 584,
	}

	timesWidths = [95]int16{
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500,
		278, 278, 564, 564, 564, 444, 921,
		722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889,
		722, 722, 556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611,
		333, 278, 333, 469, 500, 333,
		444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778,
		500, 500, 500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444,
		480, 200, 480, 541,
	}

	timesBoldWidths = [95]int16{
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500,
		333, 333, 570, 570, 570, 500, 930,
		722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944,
		722, 778, 611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667,
		333, 278, 333, 581, 500, 333,
		500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833,
		556, 500, 556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444,
		394, 220, 394, 520,
	}

	courierWidths = func() (w [95]int16) {
		for i := range w {
			w[i] = 600
		}
		return w
	}()
)

var widthTables = map[StandardFont][95]int16{
	Helvetica:            helveticaWidths,
	HelveticaOblique:     helveticaWidths,
	HelveticaBold:        helveticaBoldWidths,
	HelveticaBoldOblique: helveticaBoldWidths,
	Times:                timesWidths,
	TimesBold:            timesBoldWidths,
	Courier:              courierWidths,
	CourierBold:          courierWidths,
	CourierOblique:       courierWidths,
	CourierBoldOblique:   courierWidths,
}

// typographicWidths covers common WinAnsi punctuation outside ASCII.
// Values are Helvetica's and serve as an approximation for other
// proportional faces.
var typographicWidths = map[rune]float64{
	'‘':      222,  // left single quote
	'’':      222,  // right single quote
	'“':      333,  // left double quote
	'”':      333,  // right double quote
	'–':      556,  // en dash
	'—':      1000, // em dash
	'•':      350,  // bullet
	'…':      1000, // ellipsis
	'€':      556,  // euro
	'\u00a0': 278,  // no-break space
	'©':      737,  // copyright
	'®':      737,  // registered
	'°':      400,  // degree
	'±':      584,  // plus-minus
	'×':      584,  // multiply
	'÷':      584,  // divide
	'£':      556,  // pound
	'§':      556,  // section
	'«':      556,  // guillemet left
	'»':      556,  // guillemet right
	'ß':      611,  // sharp s
}
