package docxconv

import "errors"

// Sentinel errors for conversion.
var (
	ErrNilTree      = errors.New("docxconv: nil document tree")
	ErrConversion   = errors.New("docxconv: conversion failed")
	ErrTemplateFile = errors.New("docxconv: template file missing")
)
