// Package notes analyzes the ENML body of an existing note to decide
// which photo it describes.
//
// Two rules must both hold for a clean match:
//
//  1. A marker div whose text begins with "see:" names the archived
//     image file, with the main image's entry highlighted yellow.
//     Stacked entries for related images are collected with a "+"
//     prefix.
//  2. The note links to a photo page. Links are scanned in document
//     order with protocol and host rewrites applied; the first photo
//     link after the note's thumbnail is canonical, otherwise the last
//     photo link wins.
//
// Notes failing a rule are reported as non-compliant and left for
// manual correction. The analyzer never guesses: a wrong photo link
// would silently corrupt the inventory, a skipped note just shows up
// in the warnings.
package notes
