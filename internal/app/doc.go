// Package app wires the Forvo client, the optional AnkiConnect client and the pronunciation
// download service together and runs the commands of the CLI.
package app
