// Package registry persists the durable record of installed ESP-IDF
// versions. The on-disk format of eim_idf.json is a fixed wire contract
// consumed by IDE integrations: field names must not change.
//
// All in-process mutations go through a mutex-guarded Handle; the file
// itself is not locked against other processes (last writer wins). Every
// save rewrites the whole file, so readers never observe a partial write.
package registry
