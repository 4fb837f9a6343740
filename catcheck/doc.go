/*
Command catcheck reports on a master catalog written by mosaiccat.

It is a check that deduplication worked: in a correctly merged catalog no
two rows from different mosaics describe the same sky source.

  Usage: catcheck [options] <catalog.fits> [radius]

The optional radius argument, arc seconds, is the separation below which two
rows from different mosaics are counted as a duplicate pair.  The default is
1.

Output is the number of rows, the number of rows contributed by each mosaic,
the number of source names that occur more than once, and the number of
duplicate pairs.  With -l each duplicate pair is listed.

Rows from the same mosaic are never counted as duplicates of each other.
Repeated names are expected in component catalogs, where every component of
a source carries the source's name, so for those catalogs names are counted
per mosaic and component ids are not considered.
*/
package main
