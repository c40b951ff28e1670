/*
Package objectstore implements the Object Store Adapter: read-only access to
the live, S3-compatible gateway that fronts the current state of every
bucket this browser can show.

Only the operations spec section 4.1 lists are exposed: list buckets, list
objects (delimited, one level), head object, get object. There is no write
path and therefore no multipart upload machinery, no transfer acceleration,
and no upload-optimized transporter — none of that has anywhere to attach in
a browser that never writes.

Addressing is path-style; request signing is SigV4, both defaults of
github.com/aws/aws-sdk-go-v2/service/s3 once BaseEndpoint and UsePathStyle
are set from configuration.
*/
package objectstore
