package golang

import "github.com/CodMac/arch-depends/core"

func init() {
	core.RegisterFrontEnd(NewGoFrontEnd())
	core.RegisterSymbolResolver(core.LangGo, NewGoSymbolResolver())
}
