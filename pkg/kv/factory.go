package kv

import (
	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/engine/g_btree"
	"github.com/arjunsk/halleykv/pkg/engine/tw_btree"
)

func NewEngine(typ engine.Typ, cmp engine.Compare) (eng engine.Engine) {

	switch typ {
	case engine.TWBTree:
		eng = tw_btree.New(cmp)

	case engine.GBTree:
		eng = g_btree.New(cmp)

	default:
		panic("unknown engine type")
	}

	return
}
