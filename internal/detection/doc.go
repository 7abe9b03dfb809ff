// Package detection holds the data model returned by the prediction service
// and the pure operations the controller performs on it.
//
// A prediction produces a Result: an ordered list of Labels, each carrying a
// class, a confidence score, a normalized bounding box and the treatment text
// associated with its class. The package never talks to the network and never
// draws; it only answers questions about a Result.
//
// # Bounding Boxes
//
// Boxes arrive center-based and normalized to the image size:
//   - X, Y: center of the box, 0.0 (left/top) to 1.0 (right/bottom)
//   - Width, Height: size of the box as a fraction of the image
//
// BBox.Rect converts a box to pixels for a drawing surface of a given size.
// The same box yields different pixel rectangles on differently sized
// surfaces.
//
// # Selection
//
// Selection is the set of label ids currently chosen for display. It is an
// immutable value: With, Without and Toggle return new selections. Labels are
// always reported in Result order regardless of the order in which they were
// selected, so hiding and re-showing everything restores the original order.
//
// # Treatments
//
// Treatments derives the treatment panel from a list of labels, keeping the
// first description seen for each title. The Catalog type supplies treatment
// text for labels that arrive without it.
package detection
