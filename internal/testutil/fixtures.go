package testutil

// PipelineHCL places a two-layer pipeline on a 2x1 mesh. conv1 reads its
// input from external memory on chiplet 0 and sends its output straight to
// conv2 on chiplet 1.
const PipelineHCL = `
network "pipeline" {
  total_batch = 4
  mesh_width  = 2
  mesh_height = 1
}

layer "conv1" {
  id     = 0
  kind   = "conv"
  ifmap  = [3, 8, 8]
  ofmap  = [4, 8, 8]
  filter = [3, 3]
}

layer "conv2" {
  id     = 1
  kind   = "conv"
  ifmap  = [4, 8, 8]
  ofmap  = [4, 8, 8]
  filter = [1, 1]
  prevs  = [0]
}

schedule {
  leaf "conv1" {
    output {
      tile = [0, 0]
      b    = [0, network.total_batch]
      c    = [0, 4]
      h    = [0, 8]
      w    = [0, 8]
    }
  }
  leaf "conv2" {
    direct = [0]
    output {
      tile = [1, 0]
      b    = [0, network.total_batch]
      c    = [0, 4]
      h    = [0, 8]
      w    = [0, 8]
    }
  }
}
`

// DeadlockReport is a hand-written report whose two chiplets each wait for
// the other to receive first.
const DeadlockReport = `# Chiplet Simulation Trace
# Mesh: 2x1
# Network: DNN
# Total Batch: 1
# Total Chiplets: 2

===== CHIPLET 0 (0,0) =====

[COMPUTATIONS]

[ORDERED_OPERATIONS]
    0 | SEND    |    1 |             a_to_b |        8 | T0
    1 | RECV    |    1 |           a_from_b |        8 | T1

===== CHIPLET 1 (1,0) =====

[COMPUTATIONS]

[ORDERED_OPERATIONS]
    0 | SEND    |    0 |             b_to_a |        8 | T1
    1 | RECV    |    0 |           b_from_a |        8 | T0
`
