package projects

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SourceKind selects how a project's sources are acquired.
type SourceKind string

const (
	SourceGit   SourceKind = "git"
	SourceLocal SourceKind = "local"
)

// DefaultBranch is used for git projects that do not name a branch.
const DefaultBranch = "main"

// Descriptor is one configured project. Identity fields are immutable once
// loaded; only Status changes at runtime.
type Descriptor struct {
	Name       string     `json:"name" validate:"required,projectname"`
	SourceKind SourceKind `json:"sourceType" validate:"oneof=git local"`
	Location   string     `json:"location" validate:"required"`
	Branch     string     `json:"branch,omitempty"`
	CachePath  string     `json:"localCachePath"`
	Status     Status     `json:"status"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var descriptorValidate *validator.Validate

func init() {
	descriptorValidate = validator.New()
	_ = descriptorValidate.RegisterValidation("projectname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
}

// Validate checks the identity fields of the descriptor.
func (d *Descriptor) Validate() error {
	if err := descriptorValidate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("project %q: field %s failed %q", d.Name, fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}

// TargetBranch returns the configured branch or DefaultBranch.
func (d Descriptor) TargetBranch() string {
	if d.Branch == "" {
		return DefaultBranch
	}
	return d.Branch
}

// WorkDir is the directory that is built and analyzed: the cache directory for
// git projects, the configured location for local ones.
func (d Descriptor) WorkDir() string {
	if d.SourceKind == SourceLocal && d.Location != "" {
		return d.Location
	}
	return d.CachePath
}

// sameIdentity reports whether a reload left the descriptor's source unchanged.
func (d Descriptor) sameIdentity(o Descriptor) bool {
	return d.SourceKind == o.SourceKind && d.Location == o.Location &&
		d.TargetBranch() == o.TargetBranch() && d.CachePath == o.CachePath
}

// inferKind guesses the source kind when sourceType is omitted.
func inferKind(location string) SourceKind {
	l := strings.ToLower(location)
	if strings.Contains(l, "://") || strings.HasPrefix(l, "git@") || strings.HasSuffix(l, ".git") {
		return SourceGit
	}
	return SourceLocal
}
