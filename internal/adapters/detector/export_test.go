package detector

var ModeFor = modeFor
