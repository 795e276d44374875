// Package detect implements the document detection cascade.
//
// Three heuristic detectors score how well a frame matches a document
// archetype:
//
//   - ReceiptDetector: tall narrow bright blob with rows of text
//   - InvoiceDetector: A4-format rectangle with structured layout
//   - GeneralDetector: any rectangular outline in the edge map
//
// The Router runs them as a fixed-priority cascade, short-circuiting on the
// first confident hit and escalating to an injected object-detection model
// only when the cheap signals are inconclusive. This is a deliberate
// latency/accuracy tradeoff: the shape heuristics run in single-digit
// milliseconds while a model inference is one to two orders of magnitude
// slower.
//
// # Confidence Scores
//
// Every detector returns a confidence in [0, 1] built from additive,
// hand-tuned feature weights. A detection with confidence at the floor means
// a single weak feature matched; values near 1.0 mean most archetype
// features matched at once.
//
// # Coordinate System
//
// Bounding boxes use the standard image convention: origin at the top-left,
// X rightward, Y downward, sizes in pixels.
package detect
