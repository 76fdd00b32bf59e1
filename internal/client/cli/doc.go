// Package cli implements the cardkeeper admin command line.
//
// The CLI works with the service scope of the configured storage backend:
// it adds, lists, updates and deletes cards directly, reports collection
// statistics, lists users, clears the collection and writes backups. Account
// sign-up and sign-in go through the API server.
//
// Commands run once from the process arguments (App.Execute) or
// interactively inside "shell" (runREPL), which reads one command per line.
package cli
