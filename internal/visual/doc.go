// Package visual renders matched frame pairs for human inspection.
//
// Render draws the previous and current frames side by side with every
// keypoint as a circle of its diameter (plus an orientation tick when
// known) and a colored line per match. Sink saves each rendering as
// match_XXXX.png and blocks until the user presses Enter, which gives the
// pipeline its "advance on keypress" mode.
package visual
