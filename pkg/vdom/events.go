package vdom

// On creates a handler for an arbitrary event name: On("click", fn) is the
// same as OnClick(fn).
func On(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// OnClick handles click events.
func OnClick(handler any) EventHandler { return On("click", handler) }

// OnDblClick handles double click events.
func OnDblClick(handler any) EventHandler { return On("dblclick", handler) }

func OnInput(handler any) EventHandler   { return On("input", handler) }
func OnChange(handler any) EventHandler  { return On("change", handler) }
func OnSubmit(handler any) EventHandler  { return On("submit", handler) }
func OnFocus(handler any) EventHandler   { return On("focus", handler) }
func OnBlur(handler any) EventHandler    { return On("blur", handler) }
func OnKeyDown(handler any) EventHandler { return On("keydown", handler) }
func OnKeyUp(handler any) EventHandler   { return On("keyup", handler) }
func OnScroll(handler any) EventHandler  { return On("scroll", handler) }
