package cpu

// executeCB decodes the 0xCB-prefixed extension table: eight shift/rotate
// families plus BIT/RES/SET, each crossed with the same eight-way
// register-index operand as the primary table. Grounded on the shift/bit
// formulas in instructions.go and the teacher's jeebie/cpu/opcodes_cb.go
// register-index layout, restructured into the single-switch form spec.md
// §9 calls for instead of 256 named handlers.
func (c *CPU) executeCB() int {
	opcode := c.fetch()
	reg := int(opcode) & 7
	group := int(opcode>>3) & 7

	value := c.readR(reg)
	indirect := reg == regHLInd

	switch {
	case opcode < 0x40: // rotate/shift family, one of 8 ops x 8 regs
		var result uint8
		switch group {
		case 0:
			result = c.rlc(value)
		case 1:
			result = c.rrc(value)
		case 2:
			result = c.rl(value)
		case 3:
			result = c.rr(value)
		case 4:
			result = c.sla(value)
		case 5:
			result = c.sra(value)
		case 6:
			result = c.swap(value)
		case 7:
			result = c.srl(value)
		}
		c.writeR(reg, result)
		if indirect {
			return 16
		}
		return 8

	case opcode < 0x80: // BIT n,r
		c.bitTest(uint8(group), value)
		if indirect {
			return 12
		}
		return 8

	case opcode < 0xC0: // RES n,r
		c.writeR(reg, value&^(1<<uint8(group)))
		if indirect {
			return 16
		}
		return 8

	default: // SET n,r
		c.writeR(reg, value|(1<<uint8(group)))
		if indirect {
			return 16
		}
		return 8
	}
}
