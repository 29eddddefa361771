package emu

import "github.com/sarchlab/arm7core/insts"

// ConditionPassed evaluates cond against the N, Z, C and V flags.
func ConditionPassed(cond insts.Cond, n, z, c, v bool) bool {
	switch cond {
	case insts.CondEQ:
		return z
	case insts.CondNE:
		return !z
	case insts.CondCS:
		return c
	case insts.CondCC:
		return !c
	case insts.CondMI:
		return n
	case insts.CondPL:
		return !n
	case insts.CondVS:
		return v
	case insts.CondVC:
		return !v
	case insts.CondHI:
		return c && !z
	case insts.CondLS:
		return !c || z
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return !z && n == v
	case insts.CondLE:
		return z || n != v
	case insts.CondAL:
		return true
	}
	return false
}

// ConditionPassed evaluates cond against the current flags.
func (r *RegFile) ConditionPassed(cond insts.Cond) bool {
	return ConditionPassed(cond,
		r.Flag(Sign), r.Flag(Zero), r.Flag(Carry), r.Flag(Overflow))
}
