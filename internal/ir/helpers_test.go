package ir

import "lamina/internal/source"

var zeroSpan source.Span
