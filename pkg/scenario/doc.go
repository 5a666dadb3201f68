// Package scenario loads scripted touch input from YAML files.
//
// A scenario lists devices and the raw frames each one produces:
//
//	name: tap
//	devices:
//	  - id: 0x100
//	    serial: TP-1
//	    built_in: true
//	    interval: 0.008
//	    frames:
//	      - samples:
//	          - {path: 1, finger: 2, stage: StartInRange, x: 0.4, y: 0.5, quality: 0.5}
//	      - samples:
//	          - {path: 1, finger: 2, stage: MakeTouch, x: 0.4, y: 0.5, quality: 1}
//	        repeat: 3
//
// Frame numbers and timestamps may be omitted; they continue from the
// previous frame. Stages are given by name or number. Samples are not
// validated here, so scenarios can exercise malformed input.
package scenario
