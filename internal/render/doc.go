// Package render turns a data string into an in-memory Code 128 symbol.
//
// The encoder is github.com/boombuler/barcode; bars are scaled to the
// configured module width and drawn with gg on a white background, with the
// data printed centred beneath them. The font for that text is resolved once
// at construction. A missing or unreadable font degrades to a built-in bitmap
// face and a warning, never to a failed render.
package render
