package vdom

import (
	"fmt"
	"strings"
)

func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Attribute creates an attribute with an arbitrary name.
func Attribute(key string, value any) Attr { return attr(key, value) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// ClassIf sets class only when condition holds.
func ClassIf(condition bool, class string) Attr {
	if !condition {
		return Attr{}
	}
	return Class(class)
}

// AttrIf returns a only when condition holds.
func AttrIf(condition bool, a Attr) Attr {
	if !condition {
		return Attr{}
	}
	return a
}

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Key sets the reconciliation key. Keys compare by their fmt.Sprint form,
// so Key(1) and Key("1") are the same key. Siblings whose keys format the
// same are duplicates and make Diff return ErrDuplicateKey.
func Key(key any) Attr { return attr("key", fmt.Sprint(key)) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Attr { return attr("title", title) }

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Form attributes

func Name(name string) Attr        { return attr("name", name) }
func Value(value any) Attr         { return attr("value", value) }
func Type(t string) Attr           { return attr("type", t) }
func Placeholder(text string) Attr { return attr("placeholder", text) }
func Disabled() Attr               { return attr("disabled", true) }
func Checked(checked bool) Attr    { return attr("checked", checked) }
func Selected() Attr               { return attr("selected", true) }
func Autofocus() Attr              { return attr("autofocus", true) }
func For(id string) Attr           { return attr("for", id) }
func MaxLength(n int) Attr         { return attr("maxlength", n) }
func Src(url string) Attr          { return attr("src", url) }
func Alt(text string) Attr         { return attr("alt", text) }
func Width(w int) Attr             { return attr("width", w) }
func Height(h int) Attr            { return attr("height", h) }
func Colspan(n int) Attr           { return attr("colspan", n) }
