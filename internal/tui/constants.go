package tui

const (
	channelBufferSize = 256
	// labelColumnWidth is the width reserved for a unit label left of its bar.
	labelColumnWidth = 4
	defaultBarWidth  = 40
	maxBarWidth      = 72
	// pulseFaintBelow dims paused rings while the pulse alpha is below it.
	pulseFaintBelow = 0.25
)
