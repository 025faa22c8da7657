// Package hclload reads placement trees from HCL files.
//
// A placement is described by one `network` block, any number of `layer`
// blocks and exactly one `schedule` block. The blocks may be spread over
// several files in a directory. Expressions are evaluated with a `network`
// object in scope, so ranges can be written relative to the batch size:
//
//	b = [0, network.total_batch / 2]
package hclload
