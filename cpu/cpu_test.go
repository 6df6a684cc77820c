package cpu

import (
	"math/rand"
	"testing"

	"github.com/hexaflex/dcpu/arch"
	"github.com/hexaflex/dcpu/devices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maxSteps bounds every test program.
const maxSteps = 1000

func TestNotchProgram(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.LoadProgram([]uint16{
		0x7c01, 0x0030, 0x7de1, 0x1000, 0x0020, 0x7803, 0x1000, 0xc00d,
		0x7dc1, 0x001a, 0xa861, 0x7c01, 0x2000, 0x2161, 0x2000, 0x8463,
		0x806d, 0x7dc1, 0x000d, 0x9031, 0x7c10, 0x0018, 0x7dc1, 0x001a,
		0x9037, 0x61c1, 0x7dc1, 0x001a,
	}, 0))

	assert.Equal(t, []int{2, 3, 3, 3}, []int{c.Step(), c.Step(), c.Step(), c.Step()})

	for i := 0; i < 100; i++ {
		c.Step()
	}

	assert := assert.New(t)
	assert.False(c.Halted())
	assert.Equal(uint16(0x40), c.Register(arch.X))
	assert.Equal(uint16(0x2000), c.Register(arch.A))
	assert.Equal(uint16(0), c.Register(arch.I))
	assert.Equal(uint16(0x1a), c.Register(arch.PC))
	assert.Equal(uint16(0), c.Register(arch.SP))
	assert.Equal(uint16(0x20), c.Memory(0x1000))
}

func TestSET(t *testing.T) {
	//   SET A, 0x30
	//   SET [0x1000], A
	//   SET [0x1000+A], 7
	//   SET B, PC

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(0x30))
	ct.emit(arch.SET, arch.IndConst(0x1000), arch.Reg(arch.A))
	ct.emit(arch.SET, arch.IndOffset(arch.A, 0x1000), arch.Lit(7))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.SReg(arch.PC))
	ct.halt()

	ct.want[arch.A] = 0x30
	ct.want[arch.B] = 7
	ct.want[arch.PC] = 7
	ct.wantMem[0x1000] = 0x30
	ct.wantMem[0x1030] = 7
	runTest(t, ct)
}

func TestStack(t *testing.T) {
	//   SET PUSH, 1
	//   SET PUSH, 2
	//   SET A, PEEK
	//   SET B, POP
	//   SET C, POP

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Stack(arch.PUSH), arch.Lit(1))
	ct.emit(arch.SET, arch.Stack(arch.PUSH), arch.Lit(2))
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Stack(arch.PEEK))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.Stack(arch.POP))
	ct.emit(arch.SET, arch.Reg(arch.C), arch.Stack(arch.POP))
	ct.halt()

	ct.want[arch.A] = 2
	ct.want[arch.B] = 2
	ct.want[arch.C] = 1
	ct.want[arch.SP] = 0
	ct.wantMem[0xffff] = 1
	ct.wantMem[0xfffe] = 2
	runTest(t, ct)
}

func TestArithmetic(t *testing.T) {
	for _, tc := range []struct {
		name   string
		op     arch.Opcode
		a, b   uint16
		want   uint16
		wantEX uint16
	}{
		{"add", arch.ADD, 1, 2, 3, 0},
		{"add carry", arch.ADD, 0xffff, 2, 1, 1},
		{"sub", arch.SUB, 5, 2, 3, 0},
		{"sub borrow", arch.SUB, 1, 2, 0xffff, 0xffff},
		{"mul", arch.MUL, 3, 4, 12, 0},
		{"mul high", arch.MUL, 0x1000, 0x20, 0, 2},
		{"div", arch.DIV, 7, 2, 3, 0x8000},
		{"div zero", arch.DIV, 7, 0, 0, 0},
		{"mod", arch.MOD, 7, 4, 3, 0xbeef},
		{"mod zero", arch.MOD, 7, 0, 0, 0xbeef},
		{"shl", arch.SHL, 0x8001, 4, 0x0010, 0x0008},
		{"shr", arch.SHR, 0x8001, 4, 0x0800, 0x1000},
		{"shl masked", arch.SHL, 0x1234, 40, 0x3400, 0x0012},
		{"shr masked", arch.SHR, 0x1234, 36, 0x0123, 0x4000},
		{"and", arch.AND, 0xf0f0, 0x3c3c, 0x3030, 0xbeef},
		{"bor", arch.BOR, 0xf0f0, 0x0f00, 0xfff0, 0xbeef},
		{"xor", arch.XOR, 0xf0f0, 0xffff, 0x0f0f, 0xbeef},
	} {
		ct := newCodeTest()
		ct.emit(arch.SET, arch.SReg(arch.EX), arch.Lit(0xbeef))
		ct.emit(tc.op, arch.Reg(arch.A), arch.Reg(arch.B))
		ct.halt()

		c := New(nil)
		require.NoError(t, c.LoadProgram(ct.program, 0))
		c.SetRegister(arch.A, tc.a)
		c.SetRegister(arch.B, tc.b)
		c.Step()
		c.Step()

		assert.Equal(t, tc.want, c.Register(arch.A), tc.name)
		assert.Equal(t, tc.wantEX, c.Register(arch.EX), tc.name)
	}
}

func TestResultToEX(t *testing.T) {
	//   ADD EX, B

	ct := newCodeTest()
	ct.emit(arch.ADD, arch.SReg(arch.EX), arch.Reg(arch.B))
	ct.halt()

	c := New(nil)
	require.NoError(t, c.LoadProgram(ct.program, 0))
	c.SetRegister(arch.EX, 0xffff)
	c.SetRegister(arch.B, 3)
	assert.Equal(t, 2, c.Step())
	assert.Equal(t, uint16(2), c.Register(arch.EX))
}

func TestDivideByZero(t *testing.T) {
	//   SET A, 7
	//   DIV A, 0
	//   SET B, 7
	//   MOD B, 0
	//   SET C, 1

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(7))
	ct.emit(arch.DIV, arch.Reg(arch.A), arch.Lit(0))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.Lit(7))
	ct.emit(arch.MOD, arch.Reg(arch.B), arch.Lit(0))
	ct.emit(arch.SET, arch.Reg(arch.C), arch.Lit(1))
	ct.halt()

	ct.want[arch.A] = 0
	ct.want[arch.B] = 0
	ct.want[arch.C] = 1
	ct.want[arch.EX] = 0
	ct.want[arch.PC] = 5
	runTest(t, ct)
}

func TestConditionals(t *testing.T) {
	for _, tc := range []struct {
		op   arch.Opcode
		a, b uint16
		ok   bool
	}{
		{arch.IFE, 1, 1, true},
		{arch.IFE, 1, 2, false},
		{arch.IFN, 1, 2, true},
		{arch.IFN, 2, 2, false},
		{arch.IFG, 3, 2, true},
		{arch.IFG, 2, 3, false},
		{arch.IFB, 6, 2, true},
		{arch.IFB, 4, 3, false},
	} {
		//   IFx A, B
		//     SET C, 1
		//   SET X, 1

		ct := newCodeTest()
		ct.emit(tc.op, arch.Reg(arch.A), arch.Reg(arch.B))
		ct.emit(arch.SET, arch.Reg(arch.C), arch.Lit(1))
		ct.emit(arch.SET, arch.Reg(arch.X), arch.Lit(1))
		ct.halt()

		c := New(nil)
		require.NoError(t, c.LoadProgram(ct.program, 0))
		c.SetRegister(arch.A, tc.a)
		c.SetRegister(arch.B, tc.b)

		cycles := c.Step()
		for i := 0; i < 3; i++ {
			c.Step()
		}

		name := tc.op.String()
		assert.Equal(t, tc.ok, c.Register(arch.C) == 1, name)
		assert.Equal(t, uint16(1), c.Register(arch.X), name)
		if tc.ok {
			assert.Equal(t, 2, cycles, name)
		} else {
			assert.Equal(t, 3, cycles, name)
		}
	}
}

func TestSkipChain(t *testing.T) {
	//   SET A, 1
	//   IFN A, 1
	//     IFN B, 2
	//       SET C, 3

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.IFN, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.IFN, arch.Reg(arch.B), arch.Lit(2))
	ct.emit(arch.SET, arch.Reg(arch.C), arch.Lit(3))
	ct.halt()

	ct.want[arch.C] = 3
	ct.want[arch.PC] = 4
	runTest(t, ct)

	//   IFE A, 1
	//     IFE A, 0
	//       IFE A, 0x100
	//         SET C, 4
	//   SET X, 5

	ct = newCodeTest()
	ct.emit(arch.IFE, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.IFE, arch.Reg(arch.A), arch.Lit(0))
	ct.emit(arch.IFE, arch.Reg(arch.A), arch.Lit(0x100))
	ct.emit(arch.SET, arch.Reg(arch.C), arch.Lit(4))
	ct.emit(arch.SET, arch.Reg(arch.X), arch.Lit(5))
	ct.halt()

	c := New(nil)
	require.NoError(t, c.LoadProgram(ct.program, 0))
	assert.Equal(t, 4, c.Step())
	assert.Equal(t, uint16(4), c.Register(arch.PC))
	c.Step()
	assert.Equal(t, uint16(4), c.Register(arch.C))
}

func TestSkipHasNoSideEffects(t *testing.T) {
	//   IFE A, 1
	//     SET [0x1000], POP
	//   SET B, SP

	ct := newCodeTest()
	ct.emit(arch.IFE, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.SET, arch.IndConst(0x1000), arch.Stack(arch.POP))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.SReg(arch.SP))
	ct.halt()

	ct.want[arch.SP] = 0
	ct.want[arch.B] = 0
	ct.wantMem[0x1000] = 0
	runTest(t, ct)
}

func TestHalt(t *testing.T) {
	c := New(nil)
	calls := 0
	c.OnMemoryChange(func(uint16, uint16) { calls++ })

	assert.Equal(t, 1, c.Step())
	assert.True(t, c.Halted())
	assert.Equal(t, uint16(0), c.Register(arch.PC))

	assert.Equal(t, 1, c.Step())
	assert.Equal(t, uint16(0), c.Register(arch.PC))
	assert.Equal(t, 0, calls)
}

func TestJSR(t *testing.T) {
	//   JSR sub
	//   SET B, 2
	//   <halt>
	// :sub
	//   SET A, 1
	//   SET PC, POP

	ct := newCodeTest()
	ct.emit(arch.JSR, arch.Lit(3))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.Lit(2))
	ct.halt()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.SET, arch.SReg(arch.PC), arch.Stack(arch.POP))

	ct.want[arch.A] = 1
	ct.want[arch.B] = 2
	ct.want[arch.PC] = 2
	ct.want[arch.SP] = 0
	ct.wantMem[0xffff] = 1
	runTest(t, ct)
}

func TestReservedOpcode(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.LoadProgram([]uint16{0x0020 | 0x18<<10, 0}, 0))

	assert.Equal(t, 1, c.Step())
	assert.Equal(t, uint16(0), c.Register(arch.SP))
	assert.Equal(t, uint16(1), c.Register(arch.PC))
}

func TestInterruptDelivery(t *testing.T) {
	//   IAS handler
	//   INT 0x42
	//   SET B, 1
	//   <halt>
	// :handler
	//   SET C, A
	//   SET A, POP
	//   SET PC, POP

	ct := newCodeTest()
	ct.emit(arch.IAS, arch.Lit(5))
	ct.emit(arch.INT, arch.Lit(0x42))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.Lit(1))
	ct.halt()
	ct.emit(arch.SET, arch.Reg(arch.C), arch.Reg(arch.A))
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Stack(arch.POP))
	ct.emit(arch.SET, arch.SReg(arch.PC), arch.Stack(arch.POP))

	c := New(nil)
	require.NoError(t, c.LoadProgram(ct.program, 0))
	c.SetRegister(arch.A, 0x77)

	assert.Equal(t, 1, c.Step())
	assert.Equal(t, 5, c.Step())
	assert.Equal(t, uint16(5), c.Register(arch.PC))
	assert.Equal(t, uint16(0x42), c.Register(arch.A))
	assert.Equal(t, uint16(3), c.Memory(0xffff))
	assert.Equal(t, uint16(0x77), c.Memory(0xfffe))

	run(c)

	assert := assert.New(t)
	assert.True(c.Halted())
	assert.Equal(uint16(0x77), c.Register(arch.A))
	assert.Equal(uint16(1), c.Register(arch.B))
	assert.Equal(uint16(0x42), c.Register(arch.C))
	assert.Equal(uint16(0), c.Register(arch.SP))
	assert.Equal(uint16(4), c.Register(arch.PC))
}

func TestInterruptQueueing(t *testing.T) {
	//   IAQ 1
	//   INT 1
	//   INT 2
	//   IAQ 0
	//   <halt>

	ct := newCodeTest()
	ct.emit(arch.IAQ, arch.Lit(1))
	ct.emit(arch.INT, arch.Lit(1))
	ct.emit(arch.INT, arch.Lit(2))
	ct.emit(arch.IAQ, arch.Lit(0))
	ct.halt()

	c := New(nil)
	require.NoError(t, c.LoadProgram(ct.program, 0))
	c.SetRegister(arch.IA, 0x100)

	c.Step()
	assert.True(t, c.Queueing())
	c.Step()
	c.Step()
	assert.Equal(t, 2, c.PendingInterrupts())
	assert.Equal(t, uint16(3), c.Register(arch.PC))

	c.Step()
	assert.False(t, c.Queueing())
	assert.Equal(t, 1, c.PendingInterrupts())
	assert.Equal(t, uint16(0x100), c.Register(arch.PC))
	assert.Equal(t, uint16(1), c.Register(arch.A))
	assert.Equal(t, uint16(4), c.Memory(0xffff))
}

func TestInterruptDropped(t *testing.T) {
	c := New(nil)
	assert.False(t, c.Interrupt(1))
	assert.Equal(t, 0, c.PendingInterrupts())
	assert.False(t, c.OnFire())

	//   INT 1
	require.NoError(t, c.LoadProgram([]uint16{0x8480}, 0))
	assert.Equal(t, 2, c.Step())
}

func TestInterruptOverflow(t *testing.T) {
	c := New(nil)
	c.SetRegister(arch.IA, 0x100)
	c.SetQueueing(true)

	for i := 0; i < IntQueueCapacity; i++ {
		require.True(t, c.Interrupt(uint16(i)))
	}
	assert.False(t, c.OnFire())

	assert.False(t, c.Interrupt(0xffff))
	assert.Equal(t, IntQueueCapacity, c.PendingInterrupts())
	assert.True(t, c.OnFire())

	c.Reset()
	assert.Equal(t, 0, c.PendingInterrupts())
	assert.False(t, c.OnFire())
}

func TestOnFire(t *testing.T) {
	burn := func(seed int64) (*CPU, int) {
		c := New(nil)
		c.SetRand(rand.New(rand.NewSource(seed)))

		// SET PC, 0
		require.NoError(t, c.LoadProgram([]uint16{0x81c1}, 0))

		c.SetRegister(arch.IA, 0x100)
		c.SetQueueing(true)
		for i := 0; i <= IntQueueCapacity; i++ {
			c.Interrupt(0)
		}
		require.True(t, c.OnFire())

		calls := 0
		c.OnMemoryChange(func(uint16, uint16) { calls++ })
		for i := 0; i < 10; i++ {
			c.Step()
		}
		return c, calls
	}

	a, calls := burn(42)
	b, _ := burn(42)
	assert.Equal(t, 10, calls)
	assert.Equal(t, a.memory, b.memory)
}

func TestHCF(t *testing.T) {
	//   SET A, 1
	//   HCF 0

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(1))
	ct.emit(arch.HCF, arch.Lit(0))

	c := New(nil)
	c.SetRand(rand.New(rand.NewSource(7)))
	require.NoError(t, c.LoadProgram(ct.program, 0))
	c.Step()
	assert.Equal(t, 9, c.Step())
	assert.True(t, c.Halted())
	assert.True(t, c.OnFire())
	assert.Equal(t, uint16(1), c.Register(arch.PC))

	// The machine stays halted, but keeps burning.
	calls := 0
	c.OnMemoryChange(func(uint16, uint16) { calls++ })
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, c.Step())
	}
	assert.Equal(t, 10, calls)
	assert.True(t, c.Halted())
	assert.Equal(t, uint16(1), c.Register(arch.PC))
	assert.Equal(t, uint16(1), c.Register(arch.A))
}

func TestHardware(t *testing.T) {
	//   HWN I
	//   HWQ 0
	//   HWI 0
	//   HWI 5

	ct := newCodeTest()
	ct.emit(arch.HWN, arch.Reg(arch.I))
	ct.emit(arch.HWQ, arch.Lit(0))
	ct.emit(arch.HWI, arch.Lit(0))
	ct.emit(arch.HWI, arch.Lit(5))
	ct.halt()

	dev := &testDevice{}
	c := New(nil)
	require.True(t, c.Connect(dev))
	require.NoError(t, c.LoadProgram(ct.program, 0))

	assert.Equal(t, []int{2, 4, 7, 4}, []int{c.Step(), c.Step(), c.Step(), c.Step()})

	assert := assert.New(t)
	assert.Equal(uint16(1), c.Register(arch.I))
	assert.Equal(uint16(0x5678), c.Register(arch.A))
	assert.Equal(uint16(0x1234), c.Register(arch.B))
	assert.Equal(uint16(0x0203), c.Register(arch.C))
	assert.Equal(uint16(0xdef0), c.Register(arch.X))
	assert.Equal(uint16(0x9abc), c.Register(arch.Y))
	assert.Equal(uint16(123), c.Register(arch.Z))
	assert.Equal(1, dev.interrupts)
	assert.Equal(17, dev.cycles)
	assert.Equal(1, c.Devices().Len())

	c.Reset()
	assert.Equal(1, dev.resets)
	assert.Equal(uint16(0), c.Register(arch.PC))
	assert.False(c.Halted())
}

func TestMemoryChange(t *testing.T) {
	type store struct{ addr, value uint16 }
	var stores []store

	c := New(nil)
	c.OnMemoryChange(func(addr, value uint16) {
		stores = append(stores, store{addr, value})
	})

	// SET [0x1000], 5
	require.NoError(t, c.LoadProgram([]uint16{0x95e1, 0x1000}, 0x10))
	c.SetRegister(arch.PC, 0x10)
	c.Step()

	assert.Equal(t, []store{{0x10, 0x95e1}, {0x11, 0x1000}, {0x1000, 5}}, stores)
}

func TestLoadProgram(t *testing.T) {
	c := New(nil)

	err := c.LoadProgram(make([]uint16, 2), 0xffff)
	assert.ErrorIs(t, err, ErrProgramSize)
	assert.NoError(t, c.LoadProgram([]uint16{0xabcd}, 0xffff))
	assert.Equal(t, uint16(0xabcd), c.Memory(0xffff))

	require.NoError(t, c.LoadBytes([]byte{0x12, 0x34, 0x56}, 0x100))
	assert.Equal(t, uint16(0x1234), c.Memory(0x100))
	assert.Equal(t, uint16(0x5600), c.Memory(0x101))

	err = c.LoadBytes(make([]byte, 3), 0xffff)
	assert.ErrorIs(t, err, ErrProgramSize)
}

func TestTrace(t *testing.T) {
	var have []string
	c := New(func(i *Instruction) {
		have = append(have, i.String())
	})

	ct := newCodeTest()
	ct.emit(arch.SET, arch.Reg(arch.A), arch.Lit(0x30))
	ct.emit(arch.IFE, arch.Reg(arch.A), arch.Lit(0))
	ct.emit(arch.SET, arch.Reg(arch.B), arch.Lit(1))
	ct.emit(arch.SET, arch.IndOffset(arch.I, 0x1000), arch.Ind(arch.A))
	ct.halt()

	require.NoError(t, c.LoadProgram(ct.program, 0))
	run(c)

	assert.Equal(t, []string{
		"0000: SET A, 0x0030",
		"0002: IFE A, 0x0000",
		"0004: SET [0x1000+I], [A]",
	}, have)
}

// codeTest holds a test program and the machine state expected after
// running it to completion.
type codeTest struct {
	program []uint16
	want    map[arch.Register]uint16
	wantMem map[uint16]uint16
}

func newCodeTest() *codeTest {
	return &codeTest{
		want:    make(map[arch.Register]uint16),
		wantMem: make(map[uint16]uint16),
	}
}

func (ct *codeTest) emit(op arch.Opcode, args ...arch.Operand) {
	instr := arch.Instruction{Opcode: op}
	if len(args) > 0 {
		instr.A = args[0]
	}
	if len(args) > 1 {
		instr.B = args[1]
	}

	words, err := arch.Encode(instr)
	if err != nil {
		panic(err)
	}
	ct.program = append(ct.program, words...)
}

// halt appends a zero word, which stops the machine.
func (ct *codeTest) halt() {
	ct.program = append(ct.program, 0)
}

func runTest(t *testing.T, ct *codeTest) *CPU {
	t.Helper()

	c := New(nil)
	require.NoError(t, c.LoadProgram(ct.program, 0))
	run(c)
	require.True(t, c.Halted(), "program did not halt")

	for r, want := range ct.want {
		assert.Equal(t, want, c.Register(r), "register %s", r)
	}

	for addr, want := range ct.wantMem {
		assert.Equal(t, want, c.Memory(addr), "memory at 0x%04x", addr)
	}

	return c
}

// run steps c until it halts or maxSteps is reached.
func run(c *CPU) {
	for i := 0; i < maxSteps && !c.Halted(); i++ {
		c.Step()
	}
}

type testDevice struct {
	interrupts int
	cycles     int
	resets     int
}

func (d *testDevice) ID() devices.ID            { return 0x12345678 }
func (d *testDevice) Version() uint16           { return 0x0203 }
func (d *testDevice) Manufacturer() devices.ID  { return 0x9abcdef0 }
func (d *testDevice) Tick(_ devices.CPU, n int) { d.cycles += n }
func (d *testDevice) Reset()                    { d.resets++ }

func (d *testDevice) Interrupt(cpu devices.CPU) int {
	d.interrupts++
	cpu.SetRegister(arch.Z, 123)
	return 3
}
