package gate

import (
	"path"
	"strings"
)

// Class is the static classification of a request path.
type Class int

const (
	ClassUnclassified Class = iota
	ClassPublic
	ClassProtected
	ClassRoot
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassProtected:
		return "protected"
	case ClassRoot:
		return "root"
	default:
		return "unclassified"
	}
}

// Routes holds the path classification and the two redirect targets.
//
// Public paths match exactly. Protected paths match on whole segments, so
// "/perfil" covers "/perfil/editar" but not "/perfiles".
type Routes struct {
	Public    []string
	Protected []string
	Login     string
	Home      string
}

func DefaultRoutes() Routes {
	return Routes{
		Public:    []string{"/login", "/register"},
		Protected: []string{"/dashboard", "/inicio", "/perfil"},
		Login:     "/login",
		Home:      "/dashboard",
	}
}

func (r Routes) Classify(p string) Class {
	p = cleanPath(p)
	if p == "/" {
		return ClassRoot
	}
	for _, pub := range r.Public {
		if p == cleanPath(pub) {
			return ClassPublic
		}
	}
	for _, prot := range r.Protected {
		prot = cleanPath(prot)
		if p == prot || strings.HasPrefix(p, prot+"/") {
			return ClassProtected
		}
	}
	return ClassUnclassified
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
