// Package funcs provides built-in evaluation function kinds.
//
// These cover common leaf inputs (environment variables, file contents)
// and derived values (content checksums), and serve as reference
// implementations for writing custom functions.
package funcs
