// Package harness runs scripted protocol sessions against a fresh
// bookstore and checks the results.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: buy_after_import
//	description: "Stock bought after an import is priced and deducted"
//	steps:
//	  - input: su root sjtu
//	  - input: buy 000 3
//	    expect: ["15.00"]
//	  - input: logout
//	    silent: true
//	assertions:
//	  - type: stock
//	    isbn: "000"
//	    quantity: 7
//	  - type: finance
//	    income: "15.00"
//	    expense: "50.00"
//
// A step's expect lists the exact output lines; silent asserts there is no
// output. Steps with neither are not checked individually.
//
// # Assertion Types
//
//   - stock: the live book with isbn holds quantity copies
//   - finance: the ledger folds to the given income and expense
//   - session_depth: count logins are on the stack at the end
//   - output_contains: some step printed line
//   - consistent: every record file passes its consistency check
//
// # Golden Transcripts
//
// RunWithGolden compares the whole session transcript with
// testdata/golden/<name>.golden. Each input is echoed as "> input"
// followed by whatever it printed. Regenerate with:
//
//	go test ./internal/harness -update
package harness
