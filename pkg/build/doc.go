// Package build resolves radial and vertical layer builds into the named,
// colored cross-section profiles that are revolved into reactor solids.
//
// A build is an ordered list of typed layers measured outward from the
// machine axis (radial) or from the bottom of the machine (vertical). The
// plasma layer anchors everything: its thickness together with elongation
// and triangularity defines a D-shaped boundary, and every solid layer is a
// shell offset from that boundary by the thickness accumulated between the
// layer and the plasma. Resolution is a pure function; solids are produced
// later by a geometry kernel.
package build
