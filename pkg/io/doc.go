// Package io reads and writes factory snapshots and solve reports.
//
// # Snapshot Format
//
// A snapshot is a JSON or YAML document with the machines, their wiring and
// the targets to keep fixed:
//
//	{
//	  "products": [{"id": "ore", "category": "item"}],
//	  "nodes": [
//	    {"id": "miner", "outputs": [{"productId": "ore", "quantity": 1}],
//	     "cycleTime": 2, "machineCount": 1, "kind": {"type": "miner", "yield": 1}},
//	    {"id": "furnace", "inputs": [{"productId": "ore", "quantity": 1}],
//	     "cycleTime": 1, "machineCount": 3}
//	  ],
//	  "connections": [
//	    {"id": "c1", "sourceNodeId": "miner", "sourceOutputIndex": 0,
//	     "targetNodeId": "furnace", "targetInputIndex": 0}
//	  ],
//	  "targets": ["furnace"]
//	}
//
// Quantities and cycle times are numbers or the string "variable".
//
// # Import
//
// Use [ImportSnapshot] to read a file (the format follows the extension) or
// [ReadSnapshot] to read from any io.Reader. Both validate the snapshot and
// return coded errors from [github.com/matzehuels/flowplan/pkg/errors].
//
// # Reports
//
// [NewReport] flattens a solver result into a [Report], the shape written by
// [WriteReport] and served by the HTTP API.
package io
