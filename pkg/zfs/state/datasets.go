// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratastor/zstate/pkg/errors"
	"github.com/stratastor/zstate/pkg/zfs/command"
	"github.com/stratastor/zstate/pkg/zfs/common"
	"github.com/stratastor/zstate/pkg/zfs/dataset"
	"github.com/stratastor/zstate/pkg/zfs/property"
	"golang.org/x/exp/maps"
)

// FilesystemPresent makes sure a filesystem exists with the desired
// properties. ClonedFrom only matters when it has to be created.
func (e *Engine) FilesystemPresent(ctx context.Context, st DatasetState) *Report {
	return e.datasetPresent(ctx, KindFilesystem, st)
}

// VolumePresent is FilesystemPresent for volumes; the volume size is
// reconciled as the volsize property.
func (e *Engine) VolumePresent(ctx context.Context, st DatasetState) *Report {
	return e.datasetPresent(ctx, KindVolume, st)
}

func (e *Engine) datasetPresent(ctx context.Context, kind string, st DatasetState) *Report {
	r := e.newReport(ctx, kind+".present", st.Name)
	dtype := common.ParseType(kind)

	if err := common.ValidateName(st.Name, common.TypeFilesystem|common.TypeVolume); err != nil {
		return r.fail("invalid dataset name: "+st.Name, errors.KindInvalidArgument)
	}
	if st.ClonedFrom != "" && !common.InferType(st.ClonedFrom).IsSnapshot() {
		return r.fail(st.ClonedFrom+" is not a snapshot", errors.KindInvalidArgument)
	}

	props := make(map[string]any, len(st.Properties)+1)
	for name, value := range st.Properties {
		props[name] = e.catalog.DecodeAuto(property.ScopeDataset, name, value)
	}
	if kind == KindVolume {
		if st.VolumeSize == nil {
			return r.fail("volume_size is required for volume "+st.Name, errors.KindInvalidArgument)
		}
		props["volsize"] = property.Decode(property.TypeSize, st.VolumeSize)
	}

	exists, err := e.datasets.Exists(ctx, st.Name, dtype)
	if err != nil {
		return r.failErr(err)
	}
	if exists {
		return e.updateDataset(ctx, r, kind, st.Name, props)
	}

	action := "created"
	if st.ClonedFrom != "" {
		action = "cloned"
	}
	if !e.dryRun {
		var res command.Result
		if st.ClonedFrom != "" {
			res = e.datasets.Clone(ctx, st.ClonedFrom, st.Name, st.CreateParent, props)
		} else {
			create := dataset.CreateConfig{
				Name:         st.Name,
				Properties:   maps.Clone(props),
				CreateParent: st.CreateParent,
			}
			if kind == KindVolume {
				delete(create.Properties, "volsize")
				create.VolumeSize = st.VolumeSize
				create.Sparse = st.Sparse
			}
			res = e.datasets.Create(ctx, create)
		}
		if !res.Succeeded {
			return r.failResult(res, fmt.Sprintf("failed to %s %s %s", strings.TrimSuffix(action, "d"), kind, st.Name))
		}
	}

	e.log.Info("dataset "+action, "dataset", st.Name, "kind", kind, "run_id", r.RunID)
	if len(props) > 0 {
		r.Changes[st.Name] = props
	} else {
		r.Changes[st.Name] = action
	}
	r.Comment = fmt.Sprintf("%s %s was %s", kind, st.Name, action)
	return r
}

func (e *Engine) updateDataset(ctx context.Context, r *Report, kind, name string, props map[string]any) *Report {
	uptodate := fmt.Sprintf("%s %s is uptodate", kind, name)
	if len(props) == 0 {
		r.Comment = uptodate
		return r
	}

	// Unknown names would make the whole get fail.
	var query []string
	for _, p := range sortedKeys(props) {
		if _, ok := e.catalog.Lookup(property.ScopeDataset, p); ok {
			query = append(query, p)
		}
	}
	observed := map[string]any{}
	if len(query) > 0 {
		l, err := e.datasets.Get(ctx, []string{name}, dataset.GetOptions{
			Properties: query,
			Type:       kind,
			Parsable:   true,
		})
		if err != nil {
			return r.failErr(err)
		}
		observed = l.Values(name)
	}

	diff := ComputeDiff(e.catalog, property.ScopeDataset, observed, props, e.log)
	if diff.Empty() {
		r.Comment = uptodate
		return r
	}

	changes := map[string]any{}
	var failed []string
	apply := func(prop string, value any, inherit bool) {
		if !e.dryRun {
			var res command.Result
			if inherit {
				res = e.datasets.Inherit(ctx, prop, name, false, false)
			} else {
				res = e.datasets.Set(ctx, map[string]any{prop: value}, name)
			}
			if !res.Succeeded {
				e.log.Warn("dataset property not updated", "dataset", name, "property", prop, "error", res.Error)
				failed = append(failed, prop)
				return
			}
		}
		e.log.Info("dataset property updated", "dataset", name, "property", prop, "run_id", r.RunID)
		changes[prop] = value
	}
	for _, prop := range diff.Sets() {
		apply(prop, diff.Value(prop), false)
	}
	for _, prop := range sortedKeys(diff.Removed) {
		apply(prop, nil, true)
	}

	if len(changes) > 0 {
		r.Changes[name] = changes
	}
	if len(failed) > 0 {
		return r.fail("The following properties were not updated: "+strings.Join(failed, ", "),
			errors.KindPermissionOrState)
	}
	r.Comment = fmt.Sprintf("%s %s was updated", kind, name)
	return r
}

// DatasetAbsent destroys the dataset if it exists with the given kind. A
// dataset of another kind under the same name is left alone.
func (e *Engine) DatasetAbsent(ctx context.Context, kind, name string, force, recursive bool) *Report {
	r := e.newReport(ctx, kind+".absent", name)
	dtype := common.ParseType(kind)
	if dtype == common.TypeInvalid || dtype == common.TypePool {
		return r.fail("unsupported dataset kind: "+kind, errors.KindInvalidArgument)
	}
	if err := common.ValidateName(name, dtype); err != nil {
		return r.fail(fmt.Sprintf("invalid %s name: %s", kind, name), errors.KindInvalidArgument)
	}

	exists, err := e.datasets.Exists(ctx, name, dtype)
	if err != nil {
		return r.failErr(err)
	}
	if !exists {
		r.Comment = fmt.Sprintf("%s %s is absent", kind, name)
		return r
	}

	if !e.dryRun {
		res := e.datasets.Destroy(ctx, name, dataset.DestroyOptions{Force: force, Recursive: recursive})
		if !res.Succeeded {
			return r.failResult(res, fmt.Sprintf("failed to destroy %s %s", kind, name))
		}
	}
	e.log.Info("dataset destroyed", "dataset", name, "kind", kind, "run_id", r.RunID)
	r.Changes[name] = "destroyed"
	r.Comment = fmt.Sprintf("%s %s was destroyed", kind, name)
	return r
}

// SnapshotPresent creates the snapshot if missing. Properties only apply
// at creation.
func (e *Engine) SnapshotPresent(ctx context.Context, name string, recursive bool, props map[string]any) *Report {
	r := e.newReport(ctx, "snapshot.present", name)
	if err := common.ValidateName(name, common.TypeSnapshot); err != nil {
		return r.fail("invalid snapshot name: "+name, errors.KindInvalidArgument)
	}

	exists, err := e.datasets.Exists(ctx, name, common.TypeSnapshot)
	if err != nil {
		return r.failErr(err)
	}
	if exists {
		r.Comment = "snapshot is present"
		return r
	}

	if !e.dryRun {
		res := e.datasets.Snapshot(ctx, []string{name}, recursive, props)
		if !res.Succeeded {
			return r.failResult(res, "failed to create snapshot "+name)
		}
	}
	e.log.Info("snapshot created", "snapshot", name, "run_id", r.RunID)
	if len(props) > 0 {
		r.Changes[name] = e.catalog.DecodeAutoMap(property.ScopeDataset, props)
	} else {
		r.Changes[name] = "snapshotted"
	}
	r.Comment = fmt.Sprintf("snapshot %s was created", name)
	return r
}

// BookmarkPresent bookmarks snapshot as name. A bare name is placed on
// the snapshot's dataset.
func (e *Engine) BookmarkPresent(ctx context.Context, name, snapshot string) *Report {
	r := e.newReport(ctx, "bookmark.present", name)
	if err := common.ValidateName(snapshot, common.TypeSnapshot); err != nil {
		return r.fail("invalid snapshot name: "+snapshot, errors.KindInvalidArgument)
	}
	if !strings.ContainsAny(name, "#/") {
		base, _, _ := strings.Cut(snapshot, "@")
		name = base + "#" + name
		r.Name = name
	}
	if err := common.ValidateName(name, common.TypeBookmark); err != nil {
		return r.fail("invalid bookmark name: "+name, errors.KindInvalidArgument)
	}

	exists, err := e.datasets.Exists(ctx, name, common.TypeBookmark)
	if err != nil {
		return r.failErr(err)
	}
	if exists {
		r.Comment = "bookmark is present"
		return r
	}

	if !e.dryRun {
		res := e.datasets.Bookmark(ctx, snapshot, name)
		if !res.Succeeded {
			return r.failResult(res, "failed to bookmark "+snapshot)
		}
	}
	r.Changes[name] = snapshot
	r.Comment = fmt.Sprintf("%s bookmarked as %s", snapshot, name)
	return r
}

// Promoted makes sure name is not a clone.
func (e *Engine) Promoted(ctx context.Context, name string) *Report {
	r := e.newReport(ctx, "promoted", name)
	if err := common.ValidateName(name, common.TypeFilesystem|common.TypeVolume); err != nil {
		return r.fail("invalid dataset name: "+name, errors.KindInvalidArgument)
	}

	exists, err := e.datasets.Exists(ctx, name, common.TypeFilesystem|common.TypeVolume)
	if err != nil {
		return r.failErr(err)
	}
	if !exists {
		return r.fail(fmt.Sprintf("dataset %s does not exist", name), errors.KindNotFound)
	}

	origin, err := e.datasets.Property(ctx, name, "origin")
	if err != nil {
		return r.failErr(err)
	}
	if origin.Value == nil || origin.Value == "-" || origin.Value == "" {
		r.Comment = name + " already promoted"
		return r
	}

	if !e.dryRun {
		res := e.datasets.Promote(ctx, name)
		if !res.Succeeded {
			return r.failResult(res, "failed to promote "+name)
		}
	}
	e.log.Info("dataset promoted", "dataset", name, "run_id", r.RunID)
	r.Changes[name] = "promoted"
	r.Comment = name + " promoted"
	return r
}

// Dataset dispatches st on its kind and ensure value.
func (e *Engine) Dataset(ctx context.Context, st DatasetState) *Report {
	switch {
	case st.Ensure == EnsureAbsent:
		return e.DatasetAbsent(ctx, st.Kind, st.Name, st.Force, st.Recursive)
	case st.Ensure == EnsurePromoted:
		return e.Promoted(ctx, st.Name)
	case st.Kind == KindVolume:
		return e.VolumePresent(ctx, st)
	case st.Kind == KindSnapshot:
		return e.SnapshotPresent(ctx, st.Name, st.Recursive, st.Properties)
	case st.Kind == KindBookmark:
		return e.BookmarkPresent(ctx, st.Name, st.Snapshot)
	default:
		return e.FilesystemPresent(ctx, st)
	}
}

// Pool dispatches st on its ensure value.
func (e *Engine) Pool(ctx context.Context, st PoolState) *Report {
	if st.Ensure == EnsureAbsent {
		return e.PoolAbsent(ctx, st.Name, st.Export, st.Config.Force)
	}
	return e.PoolPresent(ctx, st)
}
