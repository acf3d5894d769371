// Package gesture turns raw touch events on a widget into drags, taps,
// double-taps and delete requests.
//
// Each widget owns a Classifier holding its own drag anchors. The time of
// the last release lives in a TapMemory, which is per widget by default and
// may be shared to make the double-tap window global.
package gesture
