// Package logio implements a pcap-style binary record/replay log for
// odometry, scan and point-cloud events: a global header once, then a
// fixed record header plus payload per event.
package logio

const (
	magic = 0xA5C10CA1

	// Record kinds.
	kindOdom    = 1
	kindScan    = 2
	kindMapLoad = 3
	kindCloud   = 4

	globalHeaderLen = 16 // magic(4), major(2), minor(2), reserved(8)
	recordHeaderLen = 16 // tsSec(4), tsNsec(4), kind(4), payloadLen(4)
)
