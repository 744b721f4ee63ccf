// Package packing assigns weighted items to fixed-capacity bins.
//
// A raw request is validated into a Request, its items are ordered according
// to the requested sort method, and one of four greedy strategies packs them:
// best-fit for the fewest bins, first-fit under an optional bin budget for the
// most weight or the most items, and lightest-bin placement over a fixed bin
// count for balance. Compare runs all four on the same ordering. Solves are
// stateless; nothing here reads or writes storage.
package packing
