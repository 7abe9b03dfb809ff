// Package imaging turns uploaded files into a drawable canvas and paints
// detection overlays onto it.
//
// This package implements the pixel side of the detection controller: file
// intake and validation, decoding, fitting the picture into the display box,
// data URI encoding for the prediction request, the class colour palette,
// overlay drawing, and cropping a single finding for a closer look. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Intake
//
// Intake validates an Upload in a fixed order:
//  1. No file (nil upload or no data)
//  2. Size above the limit (checked before the type, so an oversized file is
//     always reported as too large)
//  3. Media type not image/*
//
// The media type comes from the upload's Content-Type. When the type is
// missing or generic (application/octet-stream) it is sniffed from the file
// contents.
//
// # Display Size
//
// FitSize scales dimensions down, never up, so that they fit inside the
// display box while keeping the aspect ratio. Pictures that already fit are
// left untouched.
//
// # Overlays
//
// DrawOverlays always starts from a fresh copy of the base picture and draws
// every overlay in order: a rectangle outline, then a filled tag holding the
// label text. The base image is never modified.
//
// # Error Handling
//
// Intake errors wrap one of the sentinel errors ErrNoFile, ErrTooLarge,
// ErrNotImage or ErrDecode; use errors.Is to tell them apart.
package imaging
