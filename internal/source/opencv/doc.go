// Package opencv reads local capture devices through OpenCV. Devices do not
// report what they produce, so each one is declared with its kind in
// OPENCV_DEVICES.
//
// The OpenCV binding needs cgo and an installed OpenCV, so it is only
// compiled with the gocv build tag.
package opencv
