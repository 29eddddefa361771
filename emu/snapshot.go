package emu

// Snapshot is a copy of the complete architectural state of the core.
type Snapshot struct {
	Banks
	Pipeline   [2]uint32
	NextAccess AccessKind
}

// Snapshot captures the current state.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		Banks:      c.regs.Banks(),
		Pipeline:   c.pipeline,
		NextAccess: c.nextAccess,
	}
}

// Restore overwrites the state with s. The pipeline in s is taken as
// loaded, so the next Step retires s.Pipeline[0].
func (c *CPU) Restore(s Snapshot) {
	c.regs.SetBanks(s.Banks)
	c.pipeline = s.Pipeline
	c.nextAccess = s.NextAccess
	c.primed = true
}
