package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/stakeout/internal/ports/primary"
)

// EditPlan is the YAML document accepted by `target commit --file`.
//
//	targets:
//	  add:
//	    - kind: vehicle
//	      fields: {plate: 7ABC123, make: Honda}
//	  remove: [t-1]
//	  replace:
//	    - id: t-2
//	      status: clear
//	staging:
//	  add:
//	    - label: Lot B
//	      lat: 37.77
//	      lng: -122.41
type EditPlan struct {
	Targets TargetPlan  `yaml:"targets"`
	Staging StagingPlan `yaml:"staging"`
}

// TargetPlan lists target changes. Replace sends a delete plus a create under
// a fresh id; Edit keeps the id and is not sent.
type TargetPlan struct {
	Add     []TargetSpec `yaml:"add"`
	Remove  []string     `yaml:"remove"`
	Replace []TargetSpec `yaml:"replace"`
	Edit    []TargetSpec `yaml:"edit"`
}

// TargetSpec describes a target or the fields to change on one.
type TargetSpec struct {
	ID     string            `yaml:"id"`
	Kind   string            `yaml:"kind"`
	Status string            `yaml:"status"`
	Fields map[string]string `yaml:"fields"`
	Images []ImageSpec       `yaml:"images"`
}

// ImageSpec is an image reference; url makes it remote, path makes it local.
type ImageSpec struct {
	Filename string `yaml:"filename"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Caption  string `yaml:"caption"`
}

// StagingPlan lists staging point changes.
type StagingPlan struct {
	Add     []StagingSpec `yaml:"add"`
	Remove  []string      `yaml:"remove"`
	Replace []StagingSpec `yaml:"replace"`
}

// StagingSpec describes a staging point. Points without both coordinates are
// kept locally but skipped on commit.
type StagingSpec struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Address string   `yaml:"address"`
	Lat     *float64 `yaml:"lat"`
	Lng     *float64 `yaml:"lng"`
}

// ParseEditPlan decodes an edit plan, rejecting unknown keys.
func ParseEditPlan(r io.Reader) (*EditPlan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var plan EditPlan
	if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse edit plan: %w", err)
	}
	return &plan, nil
}

// EditAdapter translates CLI operations to EditService calls.
type EditAdapter struct {
	service primary.EditService
	out     io.Writer
}

// NewEditAdapter creates a new EditAdapter with the given service.
func NewEditAdapter(service primary.EditService, out io.Writer) *EditAdapter {
	return &EditAdapter{service: service, out: out}
}

// Show prints the stored targets and staging points of an operation.
func (a *EditAdapter) Show(ctx context.Context, operationID string) error {
	snapshot, err := a.service.LoadSnapshot(ctx, operationID)
	if err != nil {
		return fmt.Errorf("failed to load targets: %w", err)
	}

	if len(snapshot.Targets) == 0 {
		fmt.Fprintln(a.out, "No targets")
	} else {
		tw := newTable(a.out)
		fmt.Fprintln(tw, "TARGET\tKIND\tSTATUS\tFIELDS\tIMAGES")
		for _, t := range snapshot.Targets {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", t.ID, t.Kind, badge(t.Status), formatFields(t.Fields), len(t.Images))
		}
		tw.Flush()
	}
	fmt.Fprintln(a.out)

	if len(snapshot.Staging) == 0 {
		fmt.Fprintln(a.out, "No staging points")
		return nil
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "STAGING\tLABEL\tADDRESS\tPOSITION")
	for _, p := range snapshot.Staging {
		position := "-"
		if p.Geocoded() {
			position = fmt.Sprintf("%.5f, %.5f", *p.Lat, *p.Lng)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Label, orDash(p.Address), position)
	}
	return tw.Flush()
}

// Commit applies a plan to a fresh edit session and sends the difference.
func (a *EditAdapter) Commit(ctx context.Context, operationID string, plan *EditPlan) error {
	session, err := a.service.BeginEdit(ctx, operationID)
	if err != nil {
		return err
	}
	local, err := applyPlan(session, plan)
	if err != nil {
		return err
	}

	result, err := session.Commit(ctx)
	if err != nil {
		return err
	}
	if local > 0 {
		fmt.Fprintf(a.out, "%s %d in-place edit(s) kept locally; use replace to send them\n", yellow.Sprint("!"), local)
	}
	return RenderReconcileResult(a.out, result)
}

// applyPlan returns the number of in-place edits, which stay local.
func applyPlan(session *primary.EditSession, plan *EditPlan) (int, error) {
	for _, id := range plan.Targets.Remove {
		if !session.RemoveTarget(id) {
			return 0, fmt.Errorf("target %s not found", id)
		}
	}
	for _, spec := range plan.Targets.Replace {
		if _, err := session.ReplaceTarget(spec.ID, spec.mergeInto); err != nil {
			return 0, err
		}
	}
	for _, spec := range plan.Targets.Edit {
		if !session.EditTargetInPlace(spec.ID, spec.mergeInto) {
			return 0, fmt.Errorf("target %s not found", spec.ID)
		}
	}
	for _, spec := range plan.Targets.Add {
		t := &primary.Target{ID: spec.ID, Kind: spec.Kind, Status: spec.Status, Fields: map[string]string{}}
		if t.Status == "" {
			t.Status = "active"
		}
		spec.mergeInto(t)
		if _, err := session.AddTarget(t); err != nil {
			return 0, err
		}
	}

	for _, id := range plan.Staging.Remove {
		if !session.RemoveStaging(id) {
			return 0, fmt.Errorf("staging point %s not found", id)
		}
	}
	for _, spec := range plan.Staging.Replace {
		if _, err := session.ReplaceStaging(spec.ID, spec.mergeInto); err != nil {
			return 0, err
		}
	}
	for _, spec := range plan.Staging.Add {
		p := &primary.StagingPoint{ID: spec.ID}
		spec.mergeInto(p)
		if _, err := session.AddStaging(p); err != nil {
			return 0, err
		}
	}
	return len(plan.Targets.Edit), nil
}

func (s TargetSpec) mergeInto(t *primary.Target) {
	if s.Kind != "" {
		t.Kind = s.Kind
	}
	if s.Status != "" {
		t.Status = s.Status
	}
	if t.Fields == nil {
		t.Fields = map[string]string{}
	}
	maps.Copy(t.Fields, s.Fields)
	for _, img := range s.Images {
		image := primary.TargetImage{Filename: img.Filename, Caption: img.Caption}
		if img.URL != "" {
			image.StorageKind = "remote"
			image.RemoteURL = img.URL
		} else {
			image.StorageKind = "local"
			image.LocalPath = img.Path
		}
		t.Images = append(t.Images, image)
	}
}

func (s StagingSpec) mergeInto(p *primary.StagingPoint) {
	if s.Label != "" {
		p.Label = s.Label
	}
	if s.Address != "" {
		p.Address = s.Address
	}
	if s.Lat != nil {
		p.Lat = s.Lat
	}
	if s.Lng != nil {
		p.Lng = s.Lng
	}
}

func formatFields(fields map[string]string) string {
	if len(fields) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, " ")
}
