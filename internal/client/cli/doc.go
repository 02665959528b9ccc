// Package cli provides the interactive planadmin console.
//
// It wires configuration, the persisted session store, the authenticated API
// client and the record services into a REPL. A session survives restarts;
// when a token refresh is rejected the console says so and returns to the
// logged-out prompt.
//
// Commands:
//   - login [email] / logout / whoami / state
//   - list <beneficiaries|providers|reimbursements> [page]
//   - approve <id> / reject <id>
//   - settings [set]
//   - upload <path> [kind]
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
