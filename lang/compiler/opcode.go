// Package compiler translates a type-checked AST into bytecode Chunks for
// lang/vm to execute (spec.md §4.4). The opcode table follows the teacher's
// "stack picture" + stack-effect idiom (lang/compiler/opcode.go), replacing
// its Starlark instruction set with Saffron's clox-family one.
package compiler

import "fmt"

// Opcode is a single bytecode instruction's one-byte tag.
type Opcode uint8

//nolint:revive
const (
	CONSTANT Opcode = iota //           - CONSTANT<const>     value
	NILOP                  //           - NIL                 nil
	TRUE                   //           - TRUE                true
	FALSE                  //           - FALSE               false
	POP                    //       value POP                 -

	GET_LOCAL    //           - GET_LOCAL<slot>      value
	SET_LOCAL    //       value SET_LOCAL<slot>      -
	GET_GLOBAL   //           - GET_GLOBAL<name>     value
	SET_GLOBAL   //       value SET_GLOBAL<name>     -
	DEFINE_GLOBAL //      value DEFINE_GLOBAL<name>  -
	GET_UPVALUE  //           - GET_UPVALUE<slot>    value
	SET_UPVALUE  //       value SET_UPVALUE<slot>    -
	GET_PROPERTY //   instance GET_PROPERTY<name>    value
	SET_PROPERTY // instance v SET_PROPERTY<name>    v
	GET_SUPER    // this super GET_SUPER<name>        bound-method

	EQUAL    //         a b EQUAL    bool
	GREATER  //         a b GREATER  bool
	LESS     //         a b LESS     bool
	NOT      //           a NOT      bool
	NEGATE   //           a NEGATE   -a
	ADD      //         a b ADD      a+b
	SUBTRACT //         a b SUBTRACT a-b
	MULTIPLY //         a b MULTIPLY a*b
	DIVIDE   //         a b DIVIDE   a/b
	MODULO   //         a b MODULO   a%b

	JUMP           //           - JUMP<u16>           -            unconditional forward
	JUMP_IF_FALSE  //       cond JUMP_IF_FALSE<u16>   cond         conditional forward, leaves cond on stack
	LOOP           //           - LOOP<u16>           -            unconditional backward

	CALL         //  fn a1..an CALL<argc>            result
	INVOKE       // recv a1..an INVOKE<name,argc>     result
	SUPER_INVOKE // this a1..an super SUPER_INVOKE<name,argc> result
	CLOSURE      //           - CLOSURE<fnconst,upvals...> closure
	CLOSE_UPVALUE//      value CLOSE_UPVALUE         -
	RETURN       //      value RETURN                -

	CLASS   //           - CLASS<name>   class
	INHERIT //   super sub INHERIT        super
	METHOD  //   class fn METHOD<name>   class
	FIELD   //   class val FIELD<name>   class

	LIST    //    x1..xn LIST<n>    list
	MAPLIT  //  k1 v1..kn vn MAPLIT<n> map
	GETITEM //      a i GETITEM    elem
	SETITEM //    a i v SETITEM    v
	IMPORT  //     path IMPORT       module

	YIELD //      v YIELD       resumeValue

	opcodeMax
)

var opcodeNames = [...]string{
	CONSTANT:      "constant",
	NILOP:         "nil",
	TRUE:          "true",
	FALSE:         "false",
	POP:           "pop",
	GET_LOCAL:     "get_local",
	SET_LOCAL:     "set_local",
	GET_GLOBAL:    "get_global",
	SET_GLOBAL:    "set_global",
	DEFINE_GLOBAL: "define_global",
	GET_UPVALUE:   "get_upvalue",
	SET_UPVALUE:   "set_upvalue",
	GET_PROPERTY:  "get_property",
	SET_PROPERTY:  "set_property",
	GET_SUPER:     "get_super",
	EQUAL:         "equal",
	GREATER:       "greater",
	LESS:          "less",
	NOT:           "not",
	NEGATE:        "negate",
	ADD:           "add",
	SUBTRACT:      "subtract",
	MULTIPLY:      "multiply",
	DIVIDE:        "divide",
	MODULO:        "modulo",
	JUMP:          "jump",
	JUMP_IF_FALSE: "jump_if_false",
	LOOP:          "loop",
	CALL:          "call",
	INVOKE:        "invoke",
	SUPER_INVOKE:  "super_invoke",
	CLOSURE:       "closure",
	CLOSE_UPVALUE: "close_upvalue",
	RETURN:        "return",
	CLASS:         "class",
	INHERIT:       "inherit",
	METHOD:        "method",
	FIELD:         "field",
	LIST:          "list",
	MAPLIT:        "maplit",
	GETITEM:       "getitem",
	SETITEM:       "setitem",
	IMPORT:        "import",
	YIELD:         "yield",
}

func (op Opcode) String() string {
	if op < opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// stackEffect records each opcode's net effect on the operand stack depth;
// variable-arity opcodes (CALL, INVOKE, SUPER_INVOKE, LIST, MAPLIT, CLOSURE) are computed
// by the emitting code instead of looked up here, so they're left at 0.
var stackEffect = [...]int8{
	CONSTANT:      +1,
	NILOP:         +1,
	TRUE:          +1,
	FALSE:         +1,
	POP:           -1,
	GET_LOCAL:     +1,
	SET_LOCAL:     0,
	GET_GLOBAL:    +1,
	SET_GLOBAL:    0,
	DEFINE_GLOBAL: -1,
	GET_UPVALUE:   +1,
	SET_UPVALUE:   0,
	GET_PROPERTY:  0,
	SET_PROPERTY:  -1,
	GET_SUPER:     -1,
	EQUAL:         -1,
	GREATER:       -1,
	LESS:          -1,
	NOT:           0,
	NEGATE:        0,
	ADD:           -1,
	SUBTRACT:      -1,
	MULTIPLY:      -1,
	DIVIDE:        -1,
	MODULO:        -1,
	JUMP:          0,
	JUMP_IF_FALSE: 0,
	LOOP:          0,
	CLOSE_UPVALUE: -1,
	RETURN:        -1,
	CLASS:         +1,
	INHERIT:       -1,
	METHOD:        -1,
	FIELD:         -1,
	GETITEM:       -1,
	SETITEM:       -2,
	IMPORT:        0,
	YIELD:         0,
}
