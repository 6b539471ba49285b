// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// buildStage tracks assembler progress; stages only move forward.
type buildStage uint8

const (
	stageStart buildStage = iota
	stagePartitions
	stageHeaderFinalized
	stageFooterBuilt
	stageAssembled
	stageDone
)

var buildStageNames = [...]string{
	stageStart:           "start",
	stagePartitions:      "partitions",
	stageHeaderFinalized: "header finalized",
	stageFooterBuilt:     "footer built",
	stageAssembled:       "assembled",
	stageDone:            "done",
}

func (s buildStage) String() string {
	if int(s) < len(buildStageNames) {
		return buildStageNames[s]
	}

	return fmt.Sprintf("buildStage(%d)", s)
}

// assembler owns the header and bin accumulators of one build and keeps
// them in lockstep: every load command is emitted right after its chunk is
// appended, using the bin size captured before the append.
type assembler struct {
	manifest *Manifest
	opts     BuildOptions
	script   scriptContext
	scratch  string
	header   *headerBuilder
	bin      *binAssembler
	compress *partitionMatcher
	stage    buildStage
}

// Build assembles the firmware image described by m. The image is written
// to a temp file beside the destination and renamed into place only after
// every region is complete; scratch files are removed on every exit path.
func Build(ctx context.Context, m *Manifest, opts BuildOptions) (*BuildResult, error) {
	startedAt := time.Now()

	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", ErrConfiguration)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	manifest := *m
	manifest.Partitions = slices.Clone(m.Partitions)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = manifest.Output
	}
	if output == "" {
		return nil, fmt.Errorf("%w: output", ErrMissingField)
	}

	selector, err := newSelectMatcher(opts.Select)
	if err != nil {
		return nil, fmt.Errorf("compile select rules: %w", err)
	}

	compressRules := append(slices.Clone(opts.Compress), ParseRules(manifest.CompressRules...)...)
	compress, err := newCompressMatcher(compressRules)
	if err != nil {
		return nil, fmt.Errorf("compile compress rules: %w", err)
	}

	manifest.Partitions = selectPartitions(manifest.Partitions, selector)
	if len(manifest.Partitions) == 0 {
		return nil, ErrNoPartitions
	}

	scratchParent := opts.ScratchDir
	if scratchParent == "" {
		scratchParent = filepath.Dir(output)
	}

	scratch, err := os.MkdirTemp(scratchParent, ".mstarfw-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch directory: %w", ErrIO, err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	bin, err := newBinAssembler(scratch)
	if err != nil {
		return nil, err
	}
	defer func() { _ = bin.Close() }()

	a := &assembler{
		manifest: &manifest,
		opts:     opts,
		script: scriptContext{
			dramBufAddr:  manifest.DRAMBufAddr,
			firmwareName: manifest.ScriptFirmwareName,
		},
		scratch:  scratch,
		header:   newHeaderBuilder(manifest.HeaderSize),
		bin:      bin,
		compress: compress,
	}

	res, err := a.run(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("build stage %s: %w", a.stage, err)
	}

	res.Duration = time.Since(startedAt)
	return res, nil
}

// run drives all stages and publishes the image at output.
func (a *assembler) run(ctx context.Context, output string) (*BuildResult, error) {
	a.stage = stagePartitions

	if err := a.header.WritePrefix(a.manifest.HeaderPrefix); err != nil {
		return nil, err
	}

	results := make([]PartitionResult, 0, len(a.manifest.Partitions))
	for _, p := range a.manifest.Partitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := a.processPartition(p)
		if err != nil {
			return nil, &PartitionError{Partition: p.Name, Err: err}
		}

		results = append(results, res)
		if a.opts.OnPartitionDone != nil {
			a.opts.OnPartitionDone(res)
		}
	}

	if err := a.header.WriteSuffix(a.manifest.HeaderSuffix); err != nil {
		return nil, err
	}

	header, err := a.header.Finalize()
	if err != nil {
		return nil, err
	}

	headerPath := filepath.Join(a.scratch, "~header")
	if err := os.WriteFile(headerPath, header, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write header region: %w", ErrIO, err)
	}

	if err := a.bin.Close(); err != nil {
		return nil, err
	}
	a.stage = stageHeaderFinalized

	headerCRC, err := ChecksumFile(headerPath)
	if err != nil {
		return nil, err
	}

	binCRC, err := ChecksumFile(a.bin.Path())
	if err != nil {
		return nil, err
	}

	footer, err := BuildFooter(a.manifest.FooterMagic, headerCRC, binCRC, header)
	if err != nil {
		return nil, err
	}

	footerBytes, err := footer.MarshalBinary()
	if err != nil {
		return nil, err
	}
	a.stage = stageFooterBuilt

	if err := a.writeImage(output, headerPath, footerBytes); err != nil {
		return nil, err
	}
	a.stage = stageDone

	return &BuildResult{
		Output:     output,
		Partitions: results,
		HeaderSize: int64(len(header)),
		BinSize:    a.bin.Size(),
		FooterSize: int64(len(footerBytes)),
		ImageSize:  int64(len(header)) + a.bin.Size() + int64(len(footerBytes)),
		HeaderCRC:  headerCRC,
		BinCRC:     binCRC,
	}, nil
}

// writeImage concatenates header, bin, and footer into output atomically.
func (a *assembler) writeImage(output string, headerPath string, footer []byte) error {
	out, err := createPending(output)
	if err != nil {
		return err
	}
	defer out.Abort()

	buf := make([]byte, chunkCopyBufferSize)
	for _, part := range []string{headerPath, a.bin.Path()} {
		if err := appendFileTo(out, part, buf); err != nil {
			return err
		}
	}

	if _, err := out.Write(footer); err != nil {
		return fmt.Errorf("%w: write footer: %w", ErrIO, err)
	}
	a.stage = stageAssembled

	return out.Commit()
}

// appendFileTo copies the file at path to w.
func appendFileTo(w io.Writer, path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.CopyBuffer(w, f, buf); err != nil {
		return fmt.Errorf("%w: copy %s: %w", ErrIO, filepath.Base(path), err)
	}

	return nil
}
