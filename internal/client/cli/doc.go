// Package cli provides the gophauth command-line client.
//
// Subcommands:
//   - register: create an account and keep the issued token
//   - login: authenticate by email and keep the issued token
//   - me: show the identity behind the kept token
//   - logout: forget the kept token
//   - ping: check that the server answers
//
// Passwords are read without echo when stdin is a terminal.
package cli
