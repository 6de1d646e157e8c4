package help

// QuickstartYAML is printed by `pulse quickstart`.
const QuickstartYAML = `# blog-pulse Quick Start

commands:
  total_views: |
    pulse views

  refresh_ignoring_cache: |
    pulse views --force

  top_pages: |
    pulse views --top 10

  machine_readable: |
    pulse views --json --top 5

  custom_content_paths: |
    # one path per line, # starts a comment
    pulse views --paths-file paths.txt

  link_preview: |
    pulse preview https://example.com/posts/hello
    pulse preview --format yaml https://a.example/x https://b.example/y

  http_api: |
    pulse serve --addr :8787
    curl localhost:8787/api/views
    curl 'localhost:8787/api/link-preview?url=https://example.com/posts/hello'

  cache: |
    pulse cache show
    pulse cache clear
    pulse cache purge --older-than 168h

config:
  file: "pulse.yaml (or --config path)"
  env: "PULSE_VIEWS_BASE_URL, PULSE_CACHE_BACKEND, PULSE_LOG_LEVEL, ..."
  sections: [views, scraper, cache, log, server]

caching:
  - "Summary total cached for 10 minutes; --force bypasses it"
  - "Content path list cached for 24 hours"
  - "If the counter is down, a summary up to 24 hours old is shown instead"
  - "Partial totals (marked with *) are never cached"
  - "Link-preview heads are kept in an in-memory LRU for the life of the process"

exit_codes:
  0: "success (including cached, stale and partial totals)"
  1: "usage error"
  2: "runtime error (counter unavailable, page fetch failed)"
`
