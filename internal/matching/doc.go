// Package matching finds descriptor correspondences between two frames.
//
// The Matcher compares every descriptor of the previous frame against every
// descriptor of the current frame (brute force). Distances come from
// github.com/hupe1980/vecgo/distance: Hamming for binary rows and the square
// root of SquaredL2 (Euclidean distance) for float rows.
//
// Two selection policies are supported:
//
//   - nn: keep the nearest candidate for every query row
//   - knn-ratio: keep the nearest candidate only if d1 < ratio * d2, where d2
//     is the distance to the second nearest (Lowe's ratio test)
//
// Matching is directional and does not cross-check, so two query rows may
// share a train row.
package matching
