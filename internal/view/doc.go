// Package view derives display rows from the grocery and task collections.
//
// Every function here is a pure function of its inputs: it recomputes rows
// from scratch on each call and never mutates the collection it is given.
// Painting the rows is the ui package's job.
package view
