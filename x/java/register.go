package java

import "github.com/CodMac/arch-depends/core"

func init() {
	core.RegisterFrontEnd(NewJavaFrontEnd())
	core.RegisterSymbolResolver(core.LangJava, NewJavaSymbolResolver())
	core.RegisterNoiseFilter(core.LangJava, NewJavaNoiseFilter)
}
