package ir

// Hiding is the visibility of an argument: (x : A), {x : A} or {{x : A}}
type Hiding uint8

const (
	Visible Hiding = iota
	Hidden
	Instance
)

func (h Hiding) String() string {
	switch h {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Instance:
		return "instance"
	default:
		return "invalid"
	}
}

// Origin records who wrote an argument or pattern
type Origin uint8

const (
	UserWritten Origin = iota
	// Inserted arguments were added by implicit argument insertion
	Inserted
	Reflected
	CaseSplit
	Substitution
)

func (o Origin) String() string {
	switch o {
	case UserWritten:
		return "user-written"
	case Inserted:
		return "inserted"
	case Reflected:
		return "reflected"
	case CaseSplit:
		return "case-split"
	case Substitution:
		return "substitution"
	default:
		return "invalid"
	}
}

type ArgInfo struct {
	Hiding Hiding
	Origin Origin
}

var DefaultArgInfo = ArgInfo{}

func (i ArgInfo) IsVisible() bool  { return i.Hiding == Visible }
func (i ArgInfo) IsInstance() bool { return i.Hiding == Instance }

func (i ArgInfo) WithOrigin(o Origin) ArgInfo {
	i.Origin = o
	return i
}

// Dom is a binder: the name it was introduced with, its argument info and its type
type Dom struct {
	Name string
	Info ArgInfo
	Type Term
}

func (d Dom) WithType(t Term) Dom {
	d.Type = t
	return d
}

func (d Dom) String() string {
	switch d.Info.Hiding {
	case Hidden:
		return "{" + d.Name + " : " + d.Type.String() + "}"
	case Instance:
		return "{{" + d.Name + " : " + d.Type.String() + "}}"
	default:
		return "(" + d.Name + " : " + d.Type.String() + ")"
	}
}
