package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM removes everything a declarative config has no business
// using: the os and io libraries, module loading, the debug library and the
// functions that would let a script bypass the read-only platform table.
//
// string, table and math stay, as do the basic functions (type, tostring,
// tonumber, pairs, ipairs, next, select, error, pcall).
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os", "io",
		"require", "module", "package", "dofile", "loadfile", "load", "loadstring",
		"debug",
		"getmetatable", "setmetatable", "rawget", "rawset", "rawequal",
		"getfenv", "setfenv",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua state with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize:       256,
		RegistrySize:        1024 * 8,
		IncludeGoStackTrace: false,
	})
	sandboxLuaVM(L)
	return L
}
