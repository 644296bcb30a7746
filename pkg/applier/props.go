package applier

import (
	"reflect"

	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func (a *Applier) applyProps(n host.Node, hid string, props []vdom.PropPatch) error {
	for _, pp := range props {
		a.stats.PropsChanged++
		switch pp.Op {
		case vdom.AddProp, vdom.UpdateProp:
			if err := a.setProp(n, hid, pp.Key, pp.Value); err != nil {
				return err
			}
		case vdom.RemoveProp:
			if err := a.removeProp(n, hid, pp.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Applier) setProp(n host.Node, hid, key string, value any) error {
	event := vdom.EventName(key)
	if event == "" {
		if err := a.host.SetAttribute(n, key, value); err != nil {
			return hostFailure("set attribute "+key, err)
		}
		return nil
	}

	table := a.handlers[hid]
	if table == nil {
		table = make(map[string]any)
		a.handlers[hid] = table
	}
	_, installed := table[event]
	table[event] = value
	if installed {
		return nil
	}
	if err := a.host.SetListener(n, event, a.trampoline(hid, event)); err != nil {
		return hostFailure("set listener "+event, err)
	}
	return nil
}

func (a *Applier) removeProp(n host.Node, hid, key string) error {
	event := vdom.EventName(key)
	if event == "" {
		if err := a.host.RemoveAttribute(n, key); err != nil {
			return hostFailure("remove attribute "+key, err)
		}
		return nil
	}
	if table := a.handlers[hid]; table != nil {
		delete(table, event)
		if len(table) == 0 {
			delete(a.handlers, hid)
		}
	}
	if err := a.host.RemoveListener(n, event); err != nil {
		return hostFailure("remove listener "+event, err)
	}
	return nil
}

// trampoline returns the host listener for an element event. It looks the
// handler up at dispatch time and calls it without holding the lock.
func (a *Applier) trampoline(hid, event string) host.Listener {
	return func(arg any) {
		a.mu.Lock()
		fn := a.handlers[hid][event]
		a.mu.Unlock()
		if fn == nil {
			return
		}
		if !invoke(fn, arg) {
			a.logger.Warn("applier: unsupported handler type",
				"hid", hid,
				"event", event,
				"type", reflect.TypeOf(fn).String())
		}
	}
}

// invoke calls an event handler with arg. Handlers taking no arguments,
// the event argument, or a string are supported directly; other function
// types of arity zero or one are called through reflection.
func invoke(fn any, arg any) bool {
	switch h := fn.(type) {
	case func():
		h()
	case func(any):
		h(arg)
	case func(string):
		s, _ := arg.(string)
		h(s)
	case host.Listener:
		h(arg)
	default:
		rv := reflect.ValueOf(fn)
		if rv.Kind() != reflect.Func {
			return false
		}
		t := rv.Type()
		switch {
		case t.NumIn() == 0:
			rv.Call(nil)
		case t.NumIn() == 1:
			in := reflect.Zero(t.In(0))
			if arg != nil {
				av := reflect.ValueOf(arg)
				if !av.Type().AssignableTo(t.In(0)) {
					return false
				}
				in = av
			}
			rv.Call([]reflect.Value{in})
		default:
			return false
		}
	}
	return true
}
