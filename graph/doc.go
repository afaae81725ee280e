// Package graph turns hunt findings into an attack path graph: hosts, users,
// processes and findings as nodes, their relationships as edges, each with a
// layout position and visual style a renderer can draw as-is.
//
// # Building
//
// Build is a pure function. The same findings in the same order always
// produce the same node IDs, edge IDs and positions:
//
//	g := graph.Build(findings)
//	for _, n := range g.Nodes {
//	    fmt.Println(n.Kind, n.ID, n.Label)
//	}
//
// # Entities
//
//   - Hosts come from affected_hosts and are shared across findings,
//     matched case-insensitively.
//   - Users come from details.user and are shared across findings.
//   - Processes come from details.process_name, details.command or
//     details.process_path (first present wins). They are scoped to their
//     finding and never merged, even when names match.
//   - A parent process is added when details.parent_process_id is set.
//     Only one level of ancestry is modeled.
//   - Every finding gets exactly one finding node.
//
// # Layout
//
// Positions are arithmetic: hosts on a row at the top, findings on a row
// below, users and processes offset by finding index. No force-directed
// layout is attempted; renderers are free to re-layout.
//
// # Labels
//
// Labels longer than MaxLabelLength runes are cut and end in "...".
// FullLabel always keeps the original value.
package graph
