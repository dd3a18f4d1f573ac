// Package stream defines the pull-based contract for complex subband frame
// sources and provides a slice-backed reference implementation.
//
// A frame is one complex value per subband for a single time step. Sources
// hand out frames strictly in order; a caller either asks for "the next
// frame" (frameNo < 0) or names the expected index explicitly, in which
// case the source enforces strict unit-step succession. End of data is a
// normal outcome signalled by [ErrEndOfStream], not an error condition to
// log or retry.
//
// Processing stages that consume one source and produce frames of the same
// shape implement [Source] themselves, so they can be chained in place of a
// raw source.
package stream
