// Command mosaiccat merges the source catalogs of overlapping radio mosaics
// into a single master catalog in which each sky source appears once.
//
// Contents
//
//   Program overview
//   Command line usage
//   Configuration
//   Directory layout
//   Outputs
//   Algorithm outline
//
//
// Program overview
//
// A survey is imaged as many mosaics, each centered on a pointing.  Mosaics
// overlap, so a source near the edge of one mosaic is usually also detected in
// its neighbours.  mosaiccat keeps each source only in the catalog of the
// mosaic whose pointing center is nearest to it, rewrites the kept rows with
// survey names, output units, and total errors, and concatenates the results.
//
// Sample run:
//
//   mosaiccat --mosdirectories mosaics/P1,mosaics/P2,mosaics/P3 \
//       --pointdirectories pointings/L1,pointings/L2 --out release
//
// produces per-mosaic catalogs and region files in the directory release, then
//
//   LOFAR_HBA_T1_DR1_catalog_v0.95.srl.fits
//   LOFAR_HBA_T1_DR1_catalog_v0.95.gaus.fits
//   LOFAR_HBA_T1_DR1_catalog_v0.95.manifest.yaml
//
//
// Command line usage
//
//   mosaiccat --mosdirectories DIR... [--pointdirectories DIR...] [options]
//
// Directory lists may be given as repeated flags or comma separated.  Options
// are listed by mosaiccat --help.  Use --version to display the version.
//
//
// Configuration
//
// Every setting can come from, in decreasing precedence, a command line flag,
// an environment variable, a YAML file named with --config, or the built in
// default.  Environment variable names are the upper case key prefixed with
// MOSAICCAT_, with dots replaced by underscores, for example MOSAICCAT_SEED or
// MOSAICCAT_LOG_LEVEL.  Files .env and .env.local in the current directory are
// loaded into the environment first.
//
//   mosaic_dirs              mosaic directories (required)
//   pointing_dirs            pointing directories with astrometric error maps
//   out_dir                  output directory, default "."
//   release                  master catalog name
//   catalog_glob             source list pattern, default "*cat.fits"
//   components               also build component catalogs, default true
//   seed                     processing order seed, 0 for a random order
//   survey_prefix            source name prefix, default "ILTJ"
//   neighbour_radius_deg     pointings considered as owners, default 5
//   astromap_tolerance_deg   map to pointing match tolerance, default 0.6
//   astromap_default_arcsec  astrometric error without a map, default 5
//   flux_scale_error         fractional flux scale error, default 0.2
//   clip.*                   sigma clipping: niter, lenient_niter, eps, sample_size
//   hist_bins                histogram bins for noise fits, default 100
//   image_stats              measure image background noise, default false
//   metrics_file             Prometheus text file to write, default none
//   log.level, log.format, log.output, log.no_color
//
//
// Directory layout
//
// Each mosaic directory holds a source list matching catalog_glob, for example
// mosaic.cat.fits, and the image mosaic-blanked.fits whose CRVAL1 and CRVAL2
// header cards give the pointing center.  A component list is found at
//
//   mosaic-blanked_pybdsm/*/catalogues/mosaic-blanked.pybdsm.gaul.FITS
//
// below the mosaic directory.  The mosaic directory name identifies the
// mosaic in outputs.
//
// Each pointing directory may hold astromap.fits, a map of astrometric error
// in arc seconds whose CRVAL1 and CRVAL2 give its center.  A map within
// astromap_tolerance_deg of a pointing center calibrates that pointing.
//
//
// Outputs
//
// For each mosaic ID, in out_dir:
//
//   IDcat.srl.fits    kept sources
//   IDcat.srl.reg     DS9 regions of kept sources
//   IDcat.gaus.fits   components of kept sources
//   IDcat.gaus.reg    DS9 regions of those components
//
// When all outputs of a mosaic exist they are reused as they are, so an
// interrupted run can be resumed.  Outputs are written whole or not at all.
//
// The master catalogs concatenate the per-mosaic catalogs in processing order.
// The manifest records the run id, seed, processing order, and per-mosaic
// counts.
//
//
// Algorithm outline
//
// 1.  The pointing center of every mosaic is read, and the center of every
// astrometric error map.
//
// 2.  For each mosaic, the pointings within neighbour_radius_deg of its center
// are collected, its own included.  A source is kept unless one of those
// pointings is strictly closer to it than its own.  A source equidistant from
// two pointings is kept by both.
//
// 3.  The astrometric error of the mosaic is the median of the central region
// of the nearest map within tolerance, or the default.  It is combined in
// quadrature with the catalog position errors.  The flux scale error times the
// flux is combined in quadrature with the catalog flux errors.
//
// 4.  Kept sources are named ILTJhhmmss.ss+ddmmss.s from their positions.
// Components are kept when their source is kept and are named by the position
// of that source.
//
// 5.  The per-mosaic catalogs are concatenated into the master catalogs.
//
// -------------
// Public domain.
package main
