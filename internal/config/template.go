package config

// Template is written by `cargo-quality init`.
const Template = `# cargo-quality evaluation configuration
# https://github.com/open-rust-Initiative/cargo-plugins

# Analyzers to run (default: all)
check_quality_item = ["static_check", "license", "measure"]

# Directory name fragments skipped during source discovery
exclude_dir = ["target", "tests", "benches", "examples"]

# Clippy lint findings
[quality_evaluation_cfg.static_check_cfg]
error_score = 5
warn_score = 1
static_check_score = 100
static_check_weight = 30

# Dependency licenses (SPDX identifiers)
[quality_evaluation_cfg.license_cfg]
allow_licenses = ["MIT", "Apache-2.0", "BSD-2-Clause", "BSD-3-Clause", "ISC", "Unicode-DFS-2016", "Zlib"]
deny_licenses = ["GPL-2.0", "GPL-3.0", "AGPL-3.0", "LGPL-2.1", "LGPL-3.0"]
deny_license_score = 20
default_license_score = 2
unlicense_score = 10
license_eval_score = 100
license_eval_weight = 30

# Code measures: thresholds and per-violation penalties
[quality_evaluation_cfg.measure_cfg]
large_cyclomatic_complexity = 15
large_cyclomatic_complexity_score = 2
large_cognitive_complexity = 15
large_cognitive_complexity_score = 2
large_num_rows_function = 80
large_num_rows_function_score = 1
large_num_rows_file = 1000
large_num_rows_file_score = 2
measure_score = 100
measure_weight = 40
`
