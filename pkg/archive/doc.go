// Package archive unpacks downloaded files and normalizes the result.
//
// The strategy is chosen from the server-declared filename alone:
//
//	.tar.gz .tgz .tar (and other compressed tarballs)  tar
//	.zip                                               zip
//	.gz                                                single gzip stream
//	.7z                                                7-Zip
//
// Anything else is left untouched. After a successful extraction every
// entry under the destination, but not the destination itself, can be
// given a permission mode and an owner; the owner's group is the group
// with the same name as the user.
package archive
