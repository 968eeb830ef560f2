// Package console makes sure a double-clicked launcher has a console window to
// print to.
package console

var attached bool
